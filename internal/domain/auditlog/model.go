package auditlog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Logical agents that produce log entries.
const (
	AgentVoice          = "voice_agent"
	AgentIdentity       = "identity_agent"
	AgentRoleAssignment = "role_assignment_agent"
	AgentResourcePool   = "resource_pooling_agent"
	AgentCoordination   = "coordination_agent"
	AgentFollowUp       = "follow_up_agent"
)

// Actions recorded in the log.
const (
	ActionInitialTriage      = "initial_triage"
	ActionPatientIdentified  = "patient_identified"
	ActionRespondersAssigned = "responders_assigned"
	ActionResourcesAllocated = "resources_allocated"
	ActionStatusUpdated      = "status_updated"
	ActionTasksCreated       = "tasks_created"
)

// Entry maps to the agent_log table. Entries are append-only: each one
// embeds the previous entry's hash, so altering or removing any entry
// invalidates every hash after it in that case's chain.
//
// CaseID is nullable because triage and identity entries are written
// before the case row exists; they are backfilled once, in original order,
// and marked Reconciled so verification knows the hash was computed with
// an empty case reference.
type Entry struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	Seq          int64                  `db:"seq" json:"seq"`
	CaseID       *uuid.UUID             `db:"case_id" json:"case_id,omitempty"`
	Agent        string                 `db:"agent" json:"agent"`
	Action       string                 `db:"action" json:"action"`
	Detail       map[string]interface{} `db:"detail" json:"detail"`
	PreviousHash *string                `db:"previous_hash" json:"previous_hash,omitempty"`
	Hash         string                 `db:"current_hash" json:"current_hash"`
	Reconciled   bool                   `db:"reconciled" json:"reconciled"`
	Recorded     time.Time              `db:"recorded" json:"recorded"`
}

// hashCaseRef returns the case reference string as it was at hash time:
// empty for entries written before their case existed.
func (e *Entry) hashCaseRef() string {
	if e.CaseID == nil || e.Reconciled {
		return ""
	}
	return e.CaseID.String()
}

// ComputeHash derives an entry hash from the previous entry's hash and the
// entry's own fields. Detail is serialized with sorted keys, so the digest
// is stable for any map with the same contents. Timestamps participate at
// millisecond precision.
func ComputeHash(prevHash *string, caseRef, agent, action string, detail map[string]interface{}, recorded time.Time) string {
	detailJSON, _ := json.Marshal(detail)

	data := ""
	if prevHash != nil {
		data = *prevHash
	}
	data += caseRef + agent + action + string(detailJSON) + strconv.FormatInt(recorded.UnixMilli(), 10)

	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// ChainError reports the first entry in a chain that fails verification.
type ChainError struct {
	Index  int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("audit chain broken at entry %d: %s", e.Index, e.Reason)
}

// VerifyChain checks a case's entries, ordered first to last: every entry's
// stored hash must be reproducible from its stated fields plus the
// preceding entry's stored hash, and the previous-hash links must form an
// unbroken line from a null anchor. Returns nil for an intact chain.
func VerifyChain(entries []*Entry) error {
	var prevHash *string
	for i, e := range entries {
		switch {
		case prevHash == nil && e.PreviousHash != nil:
			return &ChainError{Index: i, Reason: "expected null previous hash at chain head"}
		case prevHash != nil && (e.PreviousHash == nil || *e.PreviousHash != *prevHash):
			return &ChainError{Index: i, Reason: "previous-hash link does not match preceding entry"}
		}

		want := ComputeHash(e.PreviousHash, e.hashCaseRef(), e.Agent, e.Action, e.Detail, e.Recorded)
		if want != e.Hash {
			return &ChainError{Index: i, Reason: "stored hash does not match recomputed hash"}
		}
		prevHash = &e.Hash
	}
	return nil
}
