package domain

import "time"

// Pipeline 销售管道（对应 pipelines 表）
// stages 是有序的自由文本数组，opportunity.stage 按字符串匹配，没有外键
type Pipeline struct {
	PipelineID string    `db:"pipeline_id"` // UUID, PRIMARY KEY
	TenantID   string    `db:"tenant_id"`   // UUID, NOT NULL
	Name       string    `db:"name"`        // VARCHAR(100), NOT NULL
	Stages     []string  `db:"stages"`      // TEXT[], NOT NULL, DEFAULT '{}'（顺序即看板列顺序）
	CreatedAt  time.Time `db:"created_at"`  // TIMESTAMPTZ, NOT NULL
	UpdatedAt  time.Time `db:"updated_at"`  // TIMESTAMPTZ, NOT NULL
}

// StageIndex 返回 stage 在 stages 中的位置，不存在返回 -1
func (p *Pipeline) StageIndex(stage string) int {
	for i, s := range p.Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// HasStage 判断 stage 是否属于该 pipeline
func (p *Pipeline) HasStage(stage string) bool {
	return p.StageIndex(stage) >= 0
}

// FirstStage 返回第一个 stage
func (p *Pipeline) FirstStage() (string, error) {
	if len(p.Stages) == 0 {
		return "", ErrPipelineHasNoStages
	}
	return p.Stages[0], nil
}
