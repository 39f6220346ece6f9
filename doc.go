// Package kuairec 加载 KuaiRec 推荐数据集（Kuaishou 短视频交互日志）。
//
// 设计要点：
// - 下载一次：首次加载时下载并解压压缩包，完成标志写入后才视为可用，失败不留残留
// - 固定顺序：七张表按 small_matrix、big_matrix、item_categories、item_features、
//   social_network、user_features、captions 返回
// - 清洗可扩展：默认规则由 Node 串联，配置中可追加 CEL 过滤等规则
package kuairec

import (
	"context"

	"github.com/rushteam/kuairec/config"
	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/dataset"
	"github.com/rushteam/kuairec/pipeline"
)

// 轻量 facade：便于用户直接 import "kuairec" 使用核心类型。
type Dataset = core.Dataset
type Table = core.Table
type TableName = core.TableName
type Node = pipeline.Node

const (
	SmallMatrix    = core.SmallMatrix
	BigMatrix      = core.BigMatrix
	ItemCategories = core.ItemCategories
	ItemFeatures   = core.ItemFeatures
	SocialNetwork  = core.SocialNetwork
	UserFeatures   = core.UserFeatures
	Captions       = core.Captions
)

// LoadData 使用默认配置（叠加 KUAIREC_* 环境变量）加载数据集；cleanData 为 true 时应用清洗规则。
func LoadData(ctx context.Context, cleanData bool) (*Dataset, error) {
	cfg := config.Default()
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	loader, err := dataset.NewLoader(cfg)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, cleanData)
}
