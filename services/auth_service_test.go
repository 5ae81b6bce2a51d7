package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"watermap-api/config"
	"watermap-api/models"
	"watermap-api/repositories"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		suite.T().Fatal("Failed to open test database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		suite.T().Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		suite.T().Fatal("Failed to migrate test database:", err)
	}

	suite.db = db
	suite.service = NewAuthService(repositories.NewUserRepository(db))
}

func (suite *AuthServiceTestSuite) TestRegisterAndLogin() {
	resp, err := suite.service.Register(models.RegisterRequest{
		Name:     "Aigerim",
		Email:    "aigerim@example.com",
		Password: "correct-horse",
	})
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
	suite.Equal(models.RoleUser, resp.User.Role)

	login, err := suite.service.Login(models.LoginRequest{
		Email:    "aigerim@example.com",
		Password: "correct-horse",
	})
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID, login.User.ID)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.service.Register(models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "x12345"})
	suite.Require().NoError(err)

	_, err = suite.service.Register(models.RegisterRequest{Name: "B", Email: "a@example.com", Password: "y12345"})
	suite.ErrorIs(err, models.ErrEmailTaken)
}

func (suite *AuthServiceTestSuite) TestLoginRejectsBadCredentials() {
	_, err := suite.service.Register(models.RegisterRequest{Name: "A", Email: "a@example.com", Password: "x12345"})
	suite.Require().NoError(err)

	_, err = suite.service.Login(models.LoginRequest{Email: "a@example.com", Password: "wrong"})
	suite.ErrorIs(err, models.ErrInvalidCredentials)

	_, err = suite.service.Login(models.LoginRequest{Email: "nobody@example.com", Password: "x12345"})
	suite.ErrorIs(err, models.ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestTokenCarriesIdentityClaims() {
	resp, err := suite.service.Register(models.RegisterRequest{Name: "Aigerim", Email: "a@example.com", Password: "x12345"})
	suite.Require().NoError(err)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return config.JWTSecret, nil
	})
	suite.Require().NoError(err)
	suite.True(token.Valid)
	suite.EqualValues(resp.User.ID, claims["user_id"])
	suite.Equal("user", claims["role"])
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
