// Package httpapi exposes the crafting registry over REST and websocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/crafting_registry/internal/app"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/services/crafting"
	"github.com/R3E-Network/crafting_registry/internal/middleware"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the core REST API. Middleware is
// attached by the caller.
func NewHandler(application *app.Application) *mux.Router {
	h := &handler{app: application}
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	r.HandleFunc("/accounts", h.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts", h.listAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}", h.getAccount).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}", h.updateAccount).Methods(http.MethodPut)
	r.HandleFunc("/accounts/{id}", h.deleteAccount).Methods(http.MethodDelete)

	r.HandleFunc("/registries", h.createRegistry).Methods(http.MethodPost)
	r.HandleFunc("/registries", h.listRegistries).Methods(http.MethodGet)
	r.HandleFunc("/registries/{id}", h.getRegistry).Methods(http.MethodGet)

	r.HandleFunc("/registries/{id}/archetypes", h.defineArchetype).Methods(http.MethodPost)
	r.HandleFunc("/registries/{id}/archetypes", h.listArchetypes).Methods(http.MethodGet)
	r.HandleFunc("/registries/{id}/archetypes/{aid}", h.getArchetype).Methods(http.MethodGet)

	r.HandleFunc("/registries/{id}/basics", h.markBasic).Methods(http.MethodPost)
	r.HandleFunc("/registries/{id}/basics", h.listBasics).Methods(http.MethodGet)
	r.HandleFunc("/registries/{id}/basics/{aid}", h.unmarkBasic).Methods(http.MethodDelete)

	r.HandleFunc("/registries/{id}/recipes", h.defineRecipe).Methods(http.MethodPost)
	r.HandleFunc("/registries/{id}/recipes", h.listRecipes).Methods(http.MethodGet)
	r.HandleFunc("/registries/{id}/recipes/{result}", h.getRecipe).Methods(http.MethodGet)

	r.HandleFunc("/registries/{id}/combinations", h.combine).Methods(http.MethodPost)
	r.HandleFunc("/registries/{id}/starters", h.mintStarters).Methods(http.MethodPost)

	r.HandleFunc("/registries/{id}/instances", h.listInstances).Methods(http.MethodGet)
	r.HandleFunc("/instances/{id}", h.getInstance).Methods(http.MethodGet)

	r.HandleFunc("/events", h.streamEvents).Methods(http.MethodGet)

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- accounts ---------------------------------------------------------------

func (h *handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner    string            `json:"owner"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	acct, err := h.app.Accounts.Create(r.Context(), payload.Owner, payload.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.app.Accounts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, accts)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.app.Accounts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	acct, err := h.app.Accounts.UpdateMetadata(r.Context(), mux.Vars(r)["id"], payload.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Accounts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- registries -------------------------------------------------------------

func (h *handler) createRegistry(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string            `json:"name"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	caller := middleware.CallerID(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, errors.New("caller identity required"))
		return
	}

	reg, err := h.app.Registries.Create(r.Context(), caller, payload.Name, payload.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

func (h *handler) listRegistries(w http.ResponseWriter, r *http.Request) {
	regs, err := h.app.Registries.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

func (h *handler) getRegistry(w http.ResponseWriter, r *http.Request) {
	reg, err := h.app.Registries.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// --- catalogue --------------------------------------------------------------

func (h *handler) defineArchetype(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	arch, err := h.app.Catalogue.DefineArchetype(r.Context(), mux.Vars(r)["id"], middleware.CallerID(r.Context()), payload.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, arch)
}

func (h *handler) listArchetypes(w http.ResponseWriter, r *http.Request) {
	archs, err := h.app.Catalogue.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, archs)
}

func (h *handler) getArchetype(w http.ResponseWriter, r *http.Request) {
	arch, err := h.app.Catalogue.Get(r.Context(), mux.Vars(r)["aid"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, arch)
}

func (h *handler) markBasic(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ArchetypeID string `json:"archetype_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.app.Catalogue.MarkBasic(r.Context(), mux.Vars(r)["id"], middleware.CallerID(r.Context()), payload.ArchetypeID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listBasics(w http.ResponseWriter, r *http.Request) {
	basics, err := h.app.Catalogue.ListBasics(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if basics == nil {
		basics = []string{}
	}
	writeJSON(w, http.StatusOK, basics)
}

func (h *handler) unmarkBasic(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.app.Catalogue.UnmarkBasic(r.Context(), vars["id"], middleware.CallerID(r.Context()), vars["aid"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- recipes ----------------------------------------------------------------

func (h *handler) defineRecipe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Result string `json:"result"`
		InputA string `json:"input_a"`
		InputB string `json:"input_b"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Recipes.Define(r.Context(), mux.Vars(r)["id"], middleware.CallerID(r.Context()), payload.Result, payload.InputA, payload.InputB)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	recs, err := h.app.Recipes.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rec, err := h.app.Recipes.Lookup(r.Context(), vars["id"], vars["result"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// --- crafting ---------------------------------------------------------------

func (h *handler) combine(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Result    string `json:"result"`
		InstanceA string `json:"instance_a"`
		InstanceB string `json:"instance_b"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	caller := middleware.CallerID(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, errors.New("caller identity required"))
		return
	}

	registryID := mux.Vars(r)["id"]
	var (
		minted instance.Instance
		err    error
	)
	if payload.InstanceB == "" || payload.InstanceB == payload.InstanceA {
		minted, err = h.app.Crafting.CombineWithItself(r.Context(), registryID, caller, payload.Result, payload.InstanceA)
	} else {
		minted, err = h.app.Crafting.Combine(r.Context(), registryID, caller, payload.Result, payload.InstanceA, payload.InstanceB)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, minted)
}

func (h *handler) mintStarters(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Candidates []string `json:"candidates"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	caller := middleware.CallerID(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, errors.New("caller identity required"))
		return
	}

	minted, err := h.app.Crafting.MintStarters(r.Context(), mux.Vars(r)["id"], caller, payload.Candidates)
	if err != nil {
		if len(minted) > 0 {
			// Candidates are independent; instances minted before the
			// failure stay granted, so the caller gets to see them.
			writeJSON(w, domainStatus(err), map[string]any{
				"minted": minted,
				"error":  err.Error(),
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	if minted == nil {
		minted = []instance.Instance{}
	}
	writeJSON(w, http.StatusCreated, minted)
}

// --- instances --------------------------------------------------------------

func (h *handler) listInstances(w http.ResponseWriter, r *http.Request) {
	registryID := mux.Vars(r)["id"]

	var (
		insts []instance.Instance
		err   error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		insts, err = h.app.Ledger.ListByOwner(r.Context(), registryID, owner)
	} else {
		insts, err = h.app.Ledger.ListByRegistry(r.Context(), registryID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if insts == nil {
		insts = []instance.Instance{}
	}
	writeJSON(w, http.StatusOK, insts)
}

func (h *handler) getInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := h.app.Ledger.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// --- helpers ----------------------------------------------------------------

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// domainStatus maps sentinel errors onto HTTP statuses.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrNotFound),
		errors.Is(err, archetype.ErrNotFound),
		errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, instance.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrAlreadyBasic),
		errors.Is(err, registry.ErrNotBasic),
		errors.Is(err, recipe.ErrAlreadyDefined):
		return http.StatusConflict
	case errors.Is(err, crafting.ErrUnknownRecipe),
		errors.Is(err, crafting.ErrWrongCombination),
		errors.Is(err, crafting.ErrTooManyCandidates):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, domainStatus(err), err)
}
