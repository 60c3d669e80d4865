package a

import "go.uber.org/zap"

type request struct {
	Username    string
	NewPassword string
	Token       string
}

type notLogger struct{}

func (notLogger) Infow(msg string, keysAndValues ...interface{}) {}

func handle(log *zap.SugaredLogger, r request, sessionSecret []byte) {
	log.Infow("login", "username", r.Username)
	log.Infow("reset", "password", r.NewPassword) // want `NewPassword passed to Infow may leak a credential into the logs`
	log.Errorw("redeem failed", "token", r.Token) // want `Token passed to Errorw may leak a credential into the logs`
	log.Debugln("signing with", sessionSecret)     // want `sessionSecret passed to Debugln may leak a credential into the logs`

	notLogger{}.Infow("fine", "token", r.Token)
}
