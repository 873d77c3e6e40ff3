// Package autoload initializes the global logger from the LOG_* environment
// on import:
//
//	import _ "github.com/CharlesKZhang/Reservation-Bot/pkg/logger/autoload"
package autoload

import (
	configx "github.com/CharlesKZhang/Reservation-Bot/pkg/config"
	logx "github.com/CharlesKZhang/Reservation-Bot/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
