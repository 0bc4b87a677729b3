package swami

import (
	"context"

	"github.com/utakatalp/football-pool/internal/league"
)

// Memo caches a swami's picks by game ID, declines included. Errors are not
// cached. Not safe for concurrent use.
type Memo struct {
	Swami
	picks map[int64]*league.Pick
}

func NewMemo(s Swami) *Memo {
	return &Memo{Swami: s, picks: make(map[int64]*league.Pick)}
}

func (m *Memo) Pick(ctx context.Context, gc league.GameContext) (*league.Pick, error) {
	if p, ok := m.picks[gc.GameID]; ok {
		return p, nil
	}
	p, err := m.Swami.Pick(ctx, gc)
	if err != nil {
		return nil, err
	}
	m.picks[gc.GameID] = p
	return p, nil
}
