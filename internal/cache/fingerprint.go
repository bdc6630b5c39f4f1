package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/smartquiz/backend/internal/models"
)

const keyNamespace = "smartquiz"

// Fingerprint derives the cache key for a generation request. Topics are
// deduplicated and sorted before hashing, so logically equal requests map to
// the same key regardless of topic order, across process restarts.
func Fingerprint(req models.GenerateQuestionsRequest) string {
	seen := make(map[string]bool, len(req.Topics))
	topics := make([]string, 0, len(req.Topics))
	for _, t := range req.Topics {
		if !seen[t] {
			seen[t] = true
			topics = append(topics, t)
		}
	}
	sort.Strings(topics)

	sum := sha256.Sum256([]byte(strings.Join(topics, "\x00")))
	topicHash := hex.EncodeToString(sum[:])[:16]

	return fmt.Sprintf("%s:questions:%s:%s:%d:%s",
		keyNamespace, req.Subject, req.Difficulty, req.Count, topicHash)
}
