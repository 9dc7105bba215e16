package service

import (
	"course_quiz_backend/internal/config"
	"course_quiz_backend/internal/model"
	"course_quiz_backend/internal/repository"
	"course_quiz_backend/internal/util"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	Repo *repository.UserRepository
	Cfg  *config.Config
}

func NewAuthService(repo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{Repo: repo, Cfg: cfg}
}

type RegisterReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Language string `json:"language"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Register(req *RegisterReq) (*AuthResult, error) {
	if _, err := s.Repo.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Language: req.Language,
	}
	if user.Language == "" {
		user.Language = "en"
	}
	if err := s.Repo.Create(user); err != nil {
		return nil, err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(req *LoginReq) (*AuthResult, error) {
	user, err := s.Repo.FindByEmail(req.Email)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	if user.Disabled {
		return nil, util.ErrPermissionDenied
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrUserNotFound
	}

	if err := s.Repo.UpdateLastLogin(user.ID); err != nil {
		return nil, err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.Repo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}

type ProfileReq struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
	Avatar   *string `json:"avatar"`
}

func (s *AuthService) UpdateProfile(userID uint, req *ProfileReq) (*model.User, error) {
	user, err := s.Repo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Language != nil {
		user.Language = *req.Language
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if err := s.Repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
