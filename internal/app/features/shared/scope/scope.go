// Package scope resolves the assembly or agenda item addressed by an
// operator request and performs the tenant capability check on it.
package scope

import (
	"net/http"

	"github.com/condovote/assemblyhub/internal/app/governance"
	"github.com/condovote/assemblyhub/internal/app/system/apperr"
	"github.com/condovote/assemblyhub/internal/app/system/authz"
	"github.com/condovote/assemblyhub/internal/app/system/jsonapi"
	"github.com/condovote/assemblyhub/internal/app/system/timeouts"
	"github.com/condovote/assemblyhub/internal/domain/models"
	"go.uber.org/zap"
)

// URL parameter names shared by the operator routes.
const (
	AssemblyParam    = "id"
	ItemParam        = "itemID"
	ParticipantParam = "participantID"
)

// Loader loads route targets on behalf of handlers. Each method writes the
// error response itself and reports false when the handler must stop.
type Loader struct {
	Svc *governance.Service
	Log *zap.Logger
}

// Assembly loads {id} and checks the caller may operate it.
func (l Loader) Assembly(w http.ResponseWriter, r *http.Request) (models.Assembly, bool) {
	id, err := jsonapi.ObjectID(r, AssemblyParam)
	if err != nil {
		jsonapi.Error(w, r, l.Log, err)
		return models.Assembly{}, false
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), l.Log, "load assembly")
	defer cancel()
	a, err := l.Svc.GetAssembly(ctx, id)
	if err == nil {
		err = authz.CanOperate(r, a.TenantID)
	}
	if err != nil {
		jsonapi.Error(w, r, l.Log, err)
		return models.Assembly{}, false
	}
	return a, true
}

// AssemblyItem loads {id} and its item {itemID}. An item of another
// assembly is reported as not found.
func (l Loader) AssemblyItem(w http.ResponseWriter, r *http.Request) (models.Assembly, models.AgendaItem, bool) {
	a, ok := l.Assembly(w, r)
	if !ok {
		return a, models.AgendaItem{}, false
	}
	it, err := l.item(r)
	if err == nil && it.AssemblyID != a.ID {
		err = apperr.NotFound("agenda item not found")
	}
	if err != nil {
		jsonapi.Error(w, r, l.Log, err)
		return a, models.AgendaItem{}, false
	}
	return a, it, true
}

// Item loads {itemID} on its own and checks the caller may operate its
// assembly.
func (l Loader) Item(w http.ResponseWriter, r *http.Request) (models.AgendaItem, bool) {
	it, err := l.item(r)
	if err == nil {
		err = authz.CanOperate(r, it.TenantID)
	}
	if err != nil {
		jsonapi.Error(w, r, l.Log, err)
		return models.AgendaItem{}, false
	}
	return it, true
}

func (l Loader) item(r *http.Request) (models.AgendaItem, error) {
	id, err := jsonapi.ObjectID(r, ItemParam)
	if err != nil {
		return models.AgendaItem{}, err
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), l.Log, "load item")
	defer cancel()
	return l.Svc.GetItem(ctx, id)
}
