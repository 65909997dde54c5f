// Package syncer drains the outbox: it pushes unsynced progress and answer
// records to the remote learning service and marks them synced once the
// server acknowledges each record by id.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sadmanHT/porakhela-sync/internal/models"
	"github.com/sadmanHT/porakhela-sync/internal/store"
)

const defaultBatchSize = 200

// SyncRequest is the payload posted to the sync endpoint.
type SyncRequest struct {
	Progress []*models.ProgressRecord `json:"progress"`
	Results  []*models.QuestionResult `json:"results"`
}

// SyncResponse lists the record ids the server accepted. Records the
// server does not acknowledge stay unsynced and ride along on the next
// drain; nothing is ever marked synced on the client's own authority.
type SyncResponse struct {
	AcknowledgedProgress []string  `json:"acknowledged_progress"`
	AcknowledgedResults  []string  `json:"acknowledged_results"`
	SyncedAt             time.Time `json:"synced_at"`
}

// Summary reports what one drain pass accomplished.
type Summary struct {
	ProgressSent   int
	ResultsSent    int
	ProgressAcked  int
	ResultsAcked   int
	ProgressUnsent int
	ResultsUnsent  int
}

// Service drains the outbox against a remote sync endpoint.
type Service struct {
	st        *store.Store
	endpoint  string
	http      *http.Client
	batchSize int
}

func New(st *store.Store, endpoint string) *Service {
	return &Service{
		st:        st,
		endpoint:  endpoint,
		http:      &http.Client{Timeout: 60 * time.Second},
		batchSize: defaultBatchSize,
	}
}

// Drain sends one batch of pending records and applies the server's
// acknowledgements. It returns without error when there is nothing to send.
func (s *Service) Drain(ctx context.Context) (*Summary, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("sync endpoint is not configured")
	}

	progress, err := s.st.PendingSyncProgress(s.batchSize)
	if err != nil {
		return nil, err
	}
	results, err := s.st.PendingSyncResults(s.batchSize)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ProgressSent: len(progress), ResultsSent: len(results)}
	if len(progress) == 0 && len(results) == 0 {
		return summary, nil
	}

	resp, err := s.push(ctx, &SyncRequest{Progress: progress, Results: results})
	if err != nil {
		return nil, err
	}

	syncedAt := resp.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	for _, id := range resp.AcknowledgedProgress {
		if err := s.st.AcknowledgeProgressSync(id, syncedAt); err != nil {
			return nil, fmt.Errorf("failed to acknowledge progress record %s: %w", id, err)
		}
		summary.ProgressAcked++
	}
	for _, id := range resp.AcknowledgedResults {
		if err := s.st.AcknowledgeResultSync(id, syncedAt); err != nil {
			return nil, fmt.Errorf("failed to acknowledge result record %s: %w", id, err)
		}
		summary.ResultsAcked++
	}

	summary.ProgressUnsent = summary.ProgressSent - summary.ProgressAcked
	summary.ResultsUnsent = summary.ResultsSent - summary.ResultsAcked
	if summary.ProgressUnsent > 0 || summary.ResultsUnsent > 0 {
		log.Printf("Sync left %d progress and %d result records unacknowledged; they will be retried.",
			summary.ProgressUnsent, summary.ResultsUnsent)
	}
	return summary, nil
}

func (s *Service) push(ctx context.Context, reqBody *SyncRequest) (*SyncResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sync endpoint returned status %d", resp.StatusCode)
	}

	var out SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sync response: %w", err)
	}
	return &out, nil
}
