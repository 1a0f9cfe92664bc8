package core

//go:generate mockgen -destination=mocks/core_mock.go -package=mocks github.com/dkeye/Huddle/internal/core Store,Conn
