package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/biomind/repurposing/pkg/domain"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// genesisHash seeds the chain for a partition that has not yet recorded an
// event: H("GENESIS" | partition_date).
func genesisHash(partitionDate string) string {
	sum := sha256.Sum256([]byte("GENESIS|" + partitionDate))
	return hex.EncodeToString(sum[:])
}

// selfHash computes self_hash = H(event_id | event_type | user_id | action |
// prev_hash); request_id, resource, and details are not part of the chain,
// only of the stored row.
func selfHash(ev domain.AuditEvent) (string, error) {
	payload := fmt.Sprintf("%d|%s|%s|%s|%s",
		ev.EventID, ev.EventType, ev.UserID, ev.Action, ev.PrevHash)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}
