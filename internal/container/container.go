package container

import (
	app "xray-assistant/internal/application"
	"xray-assistant/internal/domain/port"
)

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	Images          port.ImageStore
}

// Deps внешние зависимости сервисов
type Deps struct {
	Users         port.UserRepository
	Conversations port.ConversationRepository
	Images        port.ImageStore
	Model         port.ChatModel
	Annotator     port.Annotator
	Timeouts      app.Timeouts
}

func New(deps Deps) *Container {
	userService := app.NewUserService(deps.Users)
	analysisService := app.NewAnalysisService(deps.Conversations, deps.Model, deps.Annotator, deps.Images, deps.Timeouts)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		Images:          deps.Images,
	}
}
