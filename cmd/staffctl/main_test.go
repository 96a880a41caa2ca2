package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/fitness-crm-backend/internal/common/crypto"
	"github.com/dumeirei/fitness-crm-backend/internal/common/database"
	"github.com/dumeirei/fitness-crm-backend/internal/models"
)

func TestParse(t *testing.T) {
	opts, err := parse([]string{"-u", "boss", "-p", "secret", "--role", "manager", "--approver"})
	require.NoError(t, err)
	assert.Equal(t, "boss", opts.name)
	assert.True(t, opts.approver)

	_, err = parse([]string{"-u", "boss"})
	assert.Error(t, err)

	_, err = parse([]string{"-u", "boss", "-p", "x", "--role", "owner"})
	assert.ErrorContains(t, err, "未知角色")
}

func TestCreateStaff(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)

	opts := &options{username: "desk", password: "secret123", name: "前台", role: models.StaffRoleDesk}
	staff, err := createStaff(context.Background(), db, opts, 4)
	require.NoError(t, err)
	assert.True(t, staff.IsActive)
	assert.True(t, crypto.VerifyPassword("secret123", staff.PasswordHash))

	_, err = createStaff(context.Background(), db, opts, 4)
	assert.ErrorContains(t, err, "已存在")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"database:\n  driver: sqlite\n  path: "+filepath.Join(dir, "crm.db")+"\ncrypto:\n  bcrypt_cost: 4\n",
	), 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-c", cfgPath, "-u", "boss", "-p", "secret123", "--role", "manager", "--approver"}, &out))
	assert.Contains(t, out.String(), "role=manager, approver=true")
}
