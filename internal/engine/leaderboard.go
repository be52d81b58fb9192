package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"time"

	"github.com/forgo/ascend/api/internal/model"
)

type candidate struct {
	userID string
	score  float64
}

// RankSegment computes one leaderboard view. Scores are sorted descending
// with ties broken by user id ascending, so the output depends only on the
// set of standings and never on their order. Standings are not modified.
func RankSegment(seg model.LeaderboardSegment, standings []model.PlayerStanding, now time.Time) model.Leaderboard {
	best := make(map[string]float64, len(standings))
	for i := range standings {
		s := &standings[i]
		userID := s.Progression.UserID
		if userID == "" || !segmentAccepts(seg, s, now) {
			continue
		}
		score := s.Snapshot.Sum(seg.Metrics...)
		if seg.ExcludeZero && score <= 0 {
			continue
		}
		if prev, ok := best[userID]; !ok || score > prev {
			best[userID] = score
		}
	}

	candidates := make([]candidate, 0, len(best))
	for userID, score := range best {
		candidates = append(candidates, candidate{userID: userID, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].userID < candidates[j].userID
	})

	n := len(candidates)
	if seg.Limit > 0 && n > seg.Limit {
		n = seg.Limit
	}
	entries := make([]model.LeaderboardEntry, 0, n)
	for i := 0; i < n; i++ {
		rank := i + 1
		if seg.SharedRanks && i > 0 && candidates[i].score == candidates[i-1].score {
			rank = entries[i-1].Rank
		}
		entries = append(entries, model.LeaderboardEntry{
			UserID: candidates[i].userID,
			Rank:   rank,
			Score:  candidates[i].score,
		})
	}

	return model.Leaderboard{
		Segment:     seg.ID,
		Name:        seg.Name,
		Entries:     entries,
		Eligible:    len(candidates),
		GeneratedAt: now,
		Fingerprint: Fingerprint(entries),
	}
}

func segmentAccepts(seg model.LeaderboardSegment, s *model.PlayerStanding, now time.Time) bool {
	if seg.JoinedWithinDays > 0 {
		created := s.Progression.CreatedAt
		if created.IsZero() || now.Sub(created) > time.Duration(seg.JoinedWithinDays)*24*time.Hour {
			return false
		}
	}
	if seg.MinMetric != nil && s.Snapshot.Value(seg.MinMetric.Metric) < seg.MinMetric.Min {
		return false
	}
	return true
}

// Fingerprint is a SHA-256 over the ranked entries; equal boards hash equally
func Fingerprint(entries []model.LeaderboardEntry) string {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(strconv.Itoa(e.Rank)))
		h.Write([]byte{'|'})
		h.Write([]byte(e.UserID))
		h.Write([]byte{'|'})
		h.Write([]byte(strconv.FormatFloat(e.Score, 'f', -1, 64)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
