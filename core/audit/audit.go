package audit

import (
	"context"
	"time"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

// Entities and actions recorded by the domain services.
const (
	EntityAluno        = "aluno"
	EntityBillingBatch = "billing_batch"
	EntityMensalidade  = "mensalidade"
	EntityPreMatricula = "pre_matricula"

	ActionTransfer     = "transfer"
	ActionPublish      = "publish"
	ActionConfirm      = "confirm"
	ActionCancel       = "cancel"
	ActionStatusChange = "status_change"
	ActionConclude     = "conclude"
)

type (
	Entry struct {
		ID        string                 `json:"id"`
		Entity    string                 `json:"entity"`
		EntityID  string                 `json:"entity_id,omitempty"`
		Action    string                 `json:"action"`
		UserID    string                 `json:"user_id,omitempty"`
		Payload   map[string]interface{} `json:"payload"`
		CreatedAt time.Time              `json:"created_at"`
	}

	QueryFilter struct {
		Entity   string `query:"entity"`
		EntityID string `query:"entity_id"`
	}

	Repository interface {
		CreateEntry(ctx context.Context, entry Entry, exec ...core.DBExecutor) (Entry, error)
		QueryEntries(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
	}
)

func NewEntry(entity, entityID, action, userID string, payload map[string]interface{}) Entry {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return Entry{
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		UserID:    userID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

func (qf *QueryFilter) Clean() {
	qf.Entity = core.CleanString(qf.Entity, true /* lower */)
	qf.EntityID = core.CleanString(qf.EntityID)
}
