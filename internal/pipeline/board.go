package pipeline

import (
	"fmt"
	"sort"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// Column 看板的一列，顺序与 pipeline.stages 一致
type Column struct {
	Stage      string               `json:"stage"`
	Cards      []domain.Opportunity `json:"cards"`
	TotalValue float64              `json:"total_value"`
}

// Board 单个 pipeline 的看板视图
type Board struct {
	Pipeline domain.Pipeline      `json:"pipeline"`
	Columns  []Column             `json:"columns"`
	Orphans  []domain.Opportunity `json:"orphans"`
}

// PersistFunc 把迁移后的 opportunity 落库
type PersistFunc func(updated domain.Opportunity) error

// NewBoard 按 stage 分组；不属于该 pipeline 的 opportunity 忽略，stage 不匹配的放进 Orphans
func NewBoard(p domain.Pipeline, opps []domain.Opportunity) *Board {
	b := &Board{
		Pipeline: p,
		Columns:  make([]Column, len(p.Stages)),
		Orphans:  []domain.Opportunity{},
	}
	for i, s := range p.Stages {
		b.Columns[i] = Column{Stage: s, Cards: []domain.Opportunity{}}
	}

	sorted := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.PipelineID == p.PipelineID {
			sorted = append(sorted, o)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StageChangedAt.Before(sorted[j].StageChangedAt)
	})

	for _, o := range sorted {
		idx := p.StageIndex(o.Stage)
		if idx < 0 {
			b.Orphans = append(b.Orphans, o)
			continue
		}
		b.Columns[idx].Cards = append(b.Columns[idx].Cards, o)
	}
	b.recalc()
	return b
}

// Move 乐观更新：先改本地视图，再调用 persist；persist 失败则回滚并返回错误
func (b *Board) Move(opportunityID, stage string, persist PersistFunc) error {
	if err := ValidateMove(&b.Pipeline, stage); err != nil {
		return err
	}

	from, pos, card, ok := b.find(opportunityID)
	if !ok {
		return fmt.Errorf("%w: opportunity %s not on board", domain.ErrNotFound, opportunityID)
	}
	to := b.Pipeline.StageIndex(stage)
	if from == to {
		return nil
	}

	snapshot := b.snapshot()

	moved := card
	moved.Stage = stage
	b.remove(from, pos)
	b.Columns[to].Cards = append(b.Columns[to].Cards, moved)
	b.recalc()

	if persist != nil {
		if err := persist(moved); err != nil {
			b.restore(snapshot)
			return fmt.Errorf("failed to persist stage move: %w", err)
		}
	}
	return nil
}

// Card 查找卡片当前所在 stage（孤儿返回原始 stage 字符串）
func (b *Board) Card(opportunityID string) (domain.Opportunity, bool) {
	_, _, card, ok := b.find(opportunityID)
	return card, ok
}

// find 在列中查找；孤儿卡片返回 column = -1
func (b *Board) find(opportunityID string) (column, pos int, card domain.Opportunity, ok bool) {
	for ci, col := range b.Columns {
		for pi, c := range col.Cards {
			if c.OpportunityID == opportunityID {
				return ci, pi, c, true
			}
		}
	}
	for pi, c := range b.Orphans {
		if c.OpportunityID == opportunityID {
			return -1, pi, c, true
		}
	}
	return 0, 0, domain.Opportunity{}, false
}

func (b *Board) remove(column, pos int) {
	if column < 0 {
		b.Orphans = append(b.Orphans[:pos:pos], b.Orphans[pos+1:]...)
		return
	}
	cards := b.Columns[column].Cards
	b.Columns[column].Cards = append(cards[:pos:pos], cards[pos+1:]...)
}

func (b *Board) recalc() {
	for i := range b.Columns {
		total := 0.0
		for _, c := range b.Columns[i].Cards {
			if c.Value != nil {
				total += *c.Value
			}
		}
		b.Columns[i].TotalValue = total
	}
}

type boardSnapshot struct {
	columns [][]domain.Opportunity
	orphans []domain.Opportunity
}

func (b *Board) snapshot() boardSnapshot {
	s := boardSnapshot{columns: make([][]domain.Opportunity, len(b.Columns))}
	for i, col := range b.Columns {
		s.columns[i] = append([]domain.Opportunity(nil), col.Cards...)
	}
	s.orphans = append([]domain.Opportunity(nil), b.Orphans...)
	return s
}

func (b *Board) restore(s boardSnapshot) {
	for i := range b.Columns {
		b.Columns[i].Cards = s.columns[i]
	}
	b.Orphans = s.orphans
	b.recalc()
}
