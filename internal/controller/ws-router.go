package controller

import (
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())
	mux.HandleError(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)
	wsrouter.Handle(mux, "GET_STATE", c.handleGetState)

	// chat
	wsrouter.Handle(mux, "CHAT", c.handleChat)

	// player
	wsrouter.Handle(mux, "PLAYER_PLAY", c.handlePlayerPlay)
	wsrouter.Handle(mux, "PLAYER_PAUSE", c.handlePlayerPause)
	wsrouter.Handle(mux, "PLAYER_SEEK", c.handlePlayerSeek)

	// host
	wsrouter.Handle(mux, "TAKE_HOST", c.handleTakeHost)

	return mux
}
