package application

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/placemesh/listing-intake-service/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// hashClientAddr hashes an anonymous client address with a keyed BLAKE2b-256
// digest. Keying means the stored identifier cannot be reversed to an address
// by anyone without the deployment's key.
func hashClientAddr(key, addr string) string {
	keyBytes := []byte(key)
	if len(keyBytes) > 64 {
		keyBytes = keyBytes[:64]
	}
	h, err := blake2b.New256(keyBytes)
	if err != nil {
		// Only reachable with an oversized key, which is truncated above.
		h, _ = blake2b.New256(nil)
	}
	h.Write([]byte(strings.TrimSpace(addr)))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Service) elevated(actor domain.Actor) bool {
	if actor.Anonymous() {
		return false
	}
	for _, role := range s.cfg.ElevatedRoles {
		if strings.EqualFold(role, actor.Role) {
			return true
		}
	}
	return false
}

// flashValues is the re-display payload stored on a rejected submission.
// Raw (pre-sanitization) values are what the submitter should see again.
type flashValues struct {
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Excerpt     string            `json:"excerpt"`
	CategoryIDs []string          `json:"category_ids,omitempty"`
	TagIDs      []string          `json:"tag_ids,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// stashForRedisplay keeps the rejected values for the authenticated caller
// only. Anonymous failures store nothing: flash state keyed by anything
// weaker than an authenticated identity could leak between sessions.
func (s *Service) stashForRedisplay(ctx context.Context, req SubmissionRequest, actor domain.Actor) {
	if s.flash == nil || actor.Anonymous() {
		return
	}
	values := flashValues{
		Title:   req.Title,
		Body:    req.Body,
		Excerpt: req.Excerpt,
		Fields:  req.Fields,
	}
	for _, id := range req.CategoryIDs {
		values.CategoryIDs = append(values.CategoryIDs, id.String())
	}
	for _, id := range req.TagIDs {
		values.TagIDs = append(values.TagIDs, id.String())
	}
	payload, _ := json.Marshal(values)
	if err := s.flash.Put(ctx, "user:"+actor.UserID.String(), payload, s.cfg.FlashTTL); err != nil {
		slog.Default().WarnContext(ctx, "flash stash failed",
			"module", "application",
			"layer", "application",
			"operation", "stash_flash",
			"outcome", "warning",
			"error", err,
		)
	}
}
