package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// DefaultPath 在未配置 DATABASE_PATH 时使用。
const DefaultPath = "studentavis.db"

// Models 返回需要自动迁移的全部模型，测试中也会复用。
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Post{},
		&Page{},
		&FrontPageEntry{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 studentavis.db。
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = DefaultPath
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := Open(path)
	if err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open 打开 sqlite 数据库并完成迁移，但不修改全局 DB。
func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// 自动迁移模式，为核心模型创建表
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	// 旧数据中未设置展示尺寸的文章统一回退为 large
	if err := gdb.Model(&Post{}).
		Where("display_size = '' OR display_size IS NULL").
		Update("display_size", "large").Error; err != nil {
		return nil, err
	}

	return gdb, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
