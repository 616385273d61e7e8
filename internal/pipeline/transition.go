// Package pipeline 负责 opportunity 的 stage 迁移规则和看板视图
package pipeline

import (
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// ResolveStage 为新建/批量分配的 opportunity 决定 stage：
// 未指定时取 pipeline 第一个 stage，指定时必须属于该 pipeline
func ResolveStage(p *domain.Pipeline, requested string) (string, error) {
	if requested == "" {
		return p.FirstStage()
	}
	if err := ValidateMove(p, requested); err != nil {
		return "", err
	}
	return requested, nil
}

// ValidateMove 检查目标 stage 是否属于 pipeline；stage 之间没有顺序限制
func ValidateMove(p *domain.Pipeline, stage string) error {
	if !p.HasStage(stage) {
		return fmt.Errorf("%w: %q not in pipeline %s", domain.ErrStageNotInPipeline, stage, p.PipelineID)
	}
	return nil
}

// ResolvePipelineChange 计算切换 pipeline 后的 stage
//   - 调用方显式给了 stage：按新 pipeline 校验
//   - pipeline 没变：保留原 stage
//   - pipeline 变了：重置为新 pipeline 的 stages[0]，不能把旧 stage 字符串带过去
func ResolvePipelineChange(current *domain.Opportunity, next *domain.Pipeline, stage *string) (string, error) {
	if stage != nil && *stage != "" {
		if err := ValidateMove(next, *stage); err != nil {
			return "", err
		}
		return *stage, nil
	}
	if current.PipelineID == next.PipelineID && next.HasStage(current.Stage) {
		return current.Stage, nil
	}
	return next.FirstStage()
}

// Orphans 返回 stage 不在所属 pipeline 中的 opportunity（stage 改名后遗留的）
func Orphans(p *domain.Pipeline, opps []domain.Opportunity) []domain.Opportunity {
	out := []domain.Opportunity{}
	for _, o := range opps {
		if o.PipelineID == p.PipelineID && !p.HasStage(o.Stage) {
			out = append(out, o)
		}
	}
	return out
}

// CountOrphanedBy 如果把 pipeline 的 stages 换成 newStages，会有多少 opportunity 成为孤儿
func CountOrphanedBy(p *domain.Pipeline, newStages []string, opps []domain.Opportunity) int {
	next := domain.Pipeline{PipelineID: p.PipelineID, Stages: newStages}
	n := 0
	for _, o := range opps {
		if o.PipelineID == p.PipelineID && p.HasStage(o.Stage) && !next.HasStage(o.Stage) {
			n++
		}
	}
	return n
}
