package domain

import "errors"

var (
	// ErrNotFound 记录不存在（repository 把 sql.ErrNoRows 转成它）
	ErrNotFound = errors.New("record not found")

	// ErrValidation 字段级校验失败
	ErrValidation = errors.New("validation failed")

	// ErrStageNotInPipeline 目标 stage 不在 pipeline.stages 中
	ErrStageNotInPipeline = errors.New("stage is not a member of the pipeline")

	// ErrPipelineHasNoStages pipeline 没有任何 stage，无法放置 opportunity
	ErrPipelineHasNoStages = errors.New("pipeline has no stages")

	// ErrInvalidTransition appointment 状态迁移非法（只能从 scheduled 出发）
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNameNotMapped CSV 导入时 Name 列未映射
	ErrNameNotMapped = errors.New("name column must be mapped before import")
)
