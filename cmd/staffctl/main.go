// Package main 员工账号开通工具
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/fitness-crm-backend/internal/common/config"
	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/common/logger"
	"github.com/dumeirei/fitness-crm-backend/internal/common/utils"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
	"github.com/dumeirei/fitness-crm-backend/internal/repository"
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		logger.Error("员工账号开通失败", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	username   string
	password   string
	name       string
	role       string
	approver   bool
}

func parse(args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("staffctl", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径")
	fs.StringVarP(&opts.username, "username", "u", "", "登录用户名")
	fs.StringVarP(&opts.password, "password", "p", "", "登录密码")
	fs.StringVar(&opts.name, "name", "", "显示名称，默认同用户名")
	fs.StringVar(&opts.role, "role", models.StaffRoleDesk, "角色: manager, desk, trainer")
	fs.BoolVar(&opts.approver, "approver", false, "允许审批退款")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.username = strings.TrimSpace(opts.username)
	if opts.username == "" || opts.password == "" {
		return nil, errors.New("用户名和密码不能为空")
	}
	if !utils.Contains(models.StaffRoles, opts.role) {
		return nil, fmt.Errorf("未知角色 %q", opts.role)
	}
	if opts.name == "" {
		opts.name = opts.username
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	staff, err := createStaff(context.Background(), db, opts, cfg.Crypto.BcryptCost)
	if err != nil {
		return err
	}
	logger.Info("员工账号已创建",
		logger.StaffID(staff.ID),
		zap.String("username", staff.Username),
		zap.String("role", staff.Role),
		zap.Bool("can_approve_refund", staff.CanApproveRefund),
	)
	fmt.Fprintf(out, "已创建员工 %d (%s, role=%s, approver=%t)\n", staff.ID, staff.Username, staff.Role, staff.CanApproveRefund)
	return nil
}

func createStaff(ctx context.Context, db *gorm.DB, opts *options, cost int) (*models.Staff, error) {
	repo := repository.NewStaffRepository(db)
	if _, err := repo.GetByUsername(ctx, opts.username); err == nil {
		return nil, fmt.Errorf("用户名 %q 已存在", opts.username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(opts.password, cost)
	if err != nil {
		return nil, err
	}
	staff := &models.Staff{
		Username:         opts.username,
		PasswordHash:     hash,
		Name:             opts.name,
		Role:             opts.role,
		IsActive:         true,
		CanApproveRefund: opts.approver,
	}
	if err := repo.Create(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}
