package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/blinklabs-io/nft-indexer/internal/config"
	"github.com/blinklabs-io/nft-indexer/internal/errs"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
	"github.com/blinklabs-io/nft-indexer/internal/profile"
	"github.com/blinklabs-io/nft-indexer/internal/query"
	"github.com/blinklabs-io/nft-indexer/internal/store"
	"github.com/blinklabs-io/nft-indexer/internal/version"
)

const programName = "nft-indexer-queryapi"

var cmdlineFlags struct {
	configFile string
	version    bool
}

// queryHandler exposes query.Root's entry points over plain JSON. The
// GraphQL/HTTP framing a production surface would use is out of
// scope; this is the minimal thing that framing would call into.
type queryHandler struct {
	root *query.Root
}

func (h *queryHandler) handleNft(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	nft, err := h.root.Nft(r.Context(), address)
	writeResult(w, nft, err)
}

func (h *queryHandler) handleNfts(w http.ResponseWriter, r *http.Request) {
	args := query.NftsArgs{
		Owners:   r.URL.Query()["owner"],
		Creators: r.URL.Query()["creator"],
	}
	nfts, err := h.root.Nfts(r.Context(), args)
	writeResult(w, nfts, err)
}

func (h *queryHandler) handleCreatorPreview(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	preview, err := h.root.CreatorPreview(r.Context(), address)
	writeResult(w, preview, err)
}

func (h *queryHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	p, err := h.root.Profile(r.Context(), handle)
	writeResult(w, p, err)
}

func writeResult(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrArgument):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, errs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, version.GetVersionString())
		os.Exit(0)
	}

	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	logging.Configure()
	logger := logging.GetLogger()
	defer func() {
		if err := logger.Sync(); err != nil {
			return
		}
	}()

	ctx := context.Background()
	if err := store.GetStore().Load(ctx); err != nil {
		logger.Fatalw("failed to connect to store", "error", err)
	}
	defer store.GetStore().Close()

	profileClient := profile.NewClient(cfg.Profile)
	root := query.New(store.GetStore(), profileClient)
	h := &queryHandler{root: root}

	mux := http.NewServeMux()
	mux.HandleFunc("/nft", h.handleNft)
	mux.HandleFunc("/nfts", h.handleNfts)
	mux.HandleFunc("/creator-preview", h.handleCreatorPreview)
	mux.HandleFunc("/profile", h.handleProfile)

	addr := fmt.Sprintf("%s:%d", cfg.Query.ListenAddress, cfg.Query.ListenPort)
	logger.Infow("starting query API", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalw("query API stopped with an error", "error", err)
	}
}
