package service

import (
	"context"
	"fmt"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"

	"go.uber.org/zap"
)

// UserService 用户档案、简历与身份同步
type UserService struct {
	Users    UserStore
	Identity IdentityProvider
	Storage  *StorageService
}

func NewUserService(users UserStore, identity IdentityProvider, storage *StorageService) *UserService {
	return &UserService{Users: users, Identity: identity, Storage: storage}
}

// GetProfile 本地无档案时从身份服务拉取并落库
func (s *UserService) GetProfile(ctx context.Context, userID model.UserID) (*model.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	if s.Identity == nil {
		return nil, util.NotFoundErr("User")
	}

	remote, err := s.Identity.FetchUser(ctx, userID)
	if err != nil {
		return nil, util.WrapProvider("identity", err)
	}
	if remote == nil {
		return nil, util.NotFoundErr("User")
	}
	if err := s.Users.Upsert(ctx, remote); err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}
	return s.Users.FindByID(ctx, userID)
}

// SyncIdentity 身份回调 user.created / user.updated
func (s *UserService) SyncIdentity(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return util.MissingFields("id")
	}
	return s.Users.Upsert(ctx, user)
}

// RemoveIdentity 身份回调 user.deleted
func (s *UserService) RemoveIdentity(ctx context.Context, userID model.UserID) error {
	if userID == "" {
		return util.MissingFields("id")
	}
	return s.Users.Delete(ctx, userID)
}

func (s *UserService) PromoteToEducator(ctx context.Context, userID model.UserID) error {
	if err := s.Identity.SetRole(ctx, userID, model.Educator); err != nil {
		return util.WrapProvider("identity", err)
	}
	logger.Log.Info("user promoted to educator", zap.String("user", userID.String()))
	return nil
}

// UploadResume 保存新简历并删除旧文件
func (s *UserService) UploadResume(ctx context.Context, userID model.UserID, up *util.Upload) (string, error) {
	if up == nil {
		return "", util.MissingFields("resume")
	}
	if up.ContentType != util.MimePDF {
		return "", util.NewValidationError("resume must be a PDF file")
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", util.NotFoundErr("User")
	}

	url, err := s.Storage.Save(ctx, util.FolderResumes, up)
	if err != nil {
		return "", err
	}
	prev, err := s.Users.SetResume(ctx, userID, url)
	if err != nil {
		return "", fmt.Errorf("save resume: %w", err)
	}
	s.deleteFile(ctx, prev)
	return url, nil
}

func (s *UserService) DeleteResume(ctx context.Context, userID model.UserID) error {
	prev, err := s.Users.SetResume(ctx, userID, "")
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if prev == "" {
		return util.NotFoundErr("Resume")
	}
	s.deleteFile(ctx, prev)
	return nil
}

// GetResume 返回用户简历地址
func (s *UserService) GetResume(ctx context.Context, userID model.UserID) (string, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", util.NotFoundErr("User")
	}
	if user.Resume == "" {
		return "", util.NotFoundErr("Resume")
	}
	return user.Resume, nil
}

func (s *UserService) deleteFile(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.Storage.DeleteByURL(ctx, url); err != nil {
		logger.Log.Warn("delete previous resume failed", zap.String("url", url), zap.Error(err))
	}
}
