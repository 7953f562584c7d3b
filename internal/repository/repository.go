package repository

import (
	"database/sql"

	"github.com/maywin-dev/nurse-roster/backend/internal/config"
)

// Repository 封装对 PostgreSQL 的全部访问
// 每个查询都带着配置中的超时时间，事务另有更长的超时
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
