package middleware

import (
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/token"
)

const name string = "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"

var tracer = otel.Tracer(name)

// Context key holding the authenticated *models.Member
const AuthKey = "auth"

type Handler struct {
	DB     *gorm.DB
	Tokens *token.Issuer
}
