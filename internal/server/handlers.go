package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/formulary/internal/auth"
	"github.com/wolfeidau/formulary/internal/catalogue"
	httpmw "github.com/wolfeidau/formulary/internal/http"
	"github.com/wolfeidau/formulary/internal/store"
	"github.com/wolfeidau/formulary/internal/variable"
)

// authorize checks perm for the organization named in the request path.
func (s *Server) authorize(r *http.Request, perm auth.Permission) (uuid.UUID, error) {
	orgID, err := pathUUID(r, "org")
	if err != nil {
		return uuid.Nil, err
	}
	if s.cfg.NoAuth {
		return orgID, nil
	}
	if err := auth.RequirePermission(r.Context(), orgID, perm); err != nil {
		return uuid.Nil, err
	}
	return orgID, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, badRequest(fmt.Sprintf("invalid %s id: %q", name, r.PathValue(name)))
	}
	return id, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return v, nil
}

func (s *Server) listVariables(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermVariablesRead)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := s.stores.Organizations.Get(r.Context(), orgID); err != nil {
		writeError(w, r, err)
		return
	}

	tokens, err := s.catalogue.AllOrganizationTokens(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, VariablesResponse{Variables: tokens.Strings()})
}

func (s *Server) headingVariables(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermVariablesRead)
	if err != nil {
		writeError(w, r, err)
		return
	}

	headingID, err := pathUUID(r, "heading")
	if err != nil {
		writeError(w, r, err)
		return
	}

	conditional, err := queryBool(r, "conditional")
	if err != nil {
		writeError(w, r, err)
		return
	}

	heading, err := s.stores.Headings.Get(r.Context(), orgID, headingID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.writeVariables(w, r, catalogue.ForHeading(heading, conditional))
}

func (s *Server) packageItemVariables(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermVariablesRead)
	if err != nil {
		writeError(w, r, err)
		return
	}

	packageID, err := pathUUID(r, "package")
	if err != nil {
		writeError(w, r, err)
		return
	}

	itemID, err := pathUUID(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}

	conditional, err := queryBool(r, "conditional")
	if err != nil {
		writeError(w, r, err)
		return
	}

	item, err := s.stores.Packages.GetItem(r.Context(), orgID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if item.PackageID != packageID {
		writeError(w, r, store.ErrPackageItemNotFound)
		return
	}

	s.writeVariables(w, r, catalogue.ForPackageItem(item, conditional))
}

func (s *Server) writeVariables(w http.ResponseWriter, r *http.Request, scope catalogue.Scope) {
	tokens, err := s.catalogue.Build(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, VariablesResponse{Variables: tokens.Strings()})
}

func (s *Server) validateFunction(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermFunctionsValidate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req ValidateFunctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, badRequest(fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	scope, err := s.requestScope(r, orgID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	function, err := variable.Normalize(r.PathValue("function"))
	if err != nil {
		writeError(w, r, badRequest(fmt.Sprintf("invalid function: %v", err)))
		return
	}

	result, err := s.catalogue.ValidateCall(r.Context(), scope, function, req.Arguments)
	if err != nil {
		writeError(w, r, err)
		return
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	writeJSON(w, r, http.StatusOK, ValidateFunctionResponse{
		Valid:         result.Valid(),
		Errors:        errs,
		UsedVariables: result.Used.Strings(),
	})
}

// requestScope resolves the stored item a validation request refers to.
// Ambiguous or missing context is left to the catalogue to reject.
func (s *Server) requestScope(r *http.Request, orgID uuid.UUID, req ValidateFunctionRequest) (catalogue.Scope, error) {
	scope := catalogue.Scope{
		OrgID:        orgID,
		Order:        req.Order,
		Type:         req.Type,
		DurationUnit: req.DurationUnit,
	}
	if req.PackageID != nil {
		scope.PackageID = uuid.NullUUID{UUID: *req.PackageID, Valid: true}
	}

	if req.HeadingID != nil {
		heading, err := s.stores.Headings.Get(r.Context(), orgID, *req.HeadingID)
		if err != nil {
			return catalogue.Scope{}, err
		}
		scope.Heading = heading
	}

	if req.PackageItemID != nil {
		item, err := s.stores.Packages.GetItem(r.Context(), orgID, *req.PackageItemID)
		if err != nil {
			return catalogue.Scope{}, err
		}
		scope.PackageItem = item
	}

	return scope, nil
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermPluginsList)
	if err != nil {
		writeError(w, r, err)
		return
	}

	plugins, err := s.stores.Plugins.ListByOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := PluginsResponse{Plugins: make([]PluginResponse, 0, len(plugins))}
	for _, p := range plugins {
		resp.Plugins = append(resp.Plugins, pluginResponse(p))
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) installPlugin(w http.ResponseWriter, r *http.Request) {
	orgID, err := s.authorize(r, auth.PermPluginsInstall)
	if err != nil {
		writeError(w, r, err)
		return
	}

	plugin, err := s.installer.Install(r.Context(), r.Body, orgID, r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	event := zerolog.Ctx(r.Context()).Info().
		Str("client_ip", httpmw.ClientIPFromContext(r.Context())).
		Str("plugin", plugin.Name)
	if principal := auth.PrincipalFromContext(r.Context()); principal != nil {
		event = event.Str("subject", principal.Subject)
	}
	event.Msg("Plugin installed")

	writeJSON(w, r, http.StatusCreated, pluginResponse(plugin))
}
