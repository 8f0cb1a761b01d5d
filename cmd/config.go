package cmd

import "github.com/tester22000/simpleshare/internal/database"

type Config struct {
	Listen   string   `mapstructure:"listen"`
	Database Database `mapstructure:"database"`
	Settings Settings `mapstructure:"settings"`
	Log      Log      `mapstructure:"log"`
}

type Settings struct {
	Limit     uint `mapstructure:"limit"`
	BodyLimit uint `mapstructure:"bodylimit"`
	PageSize  int  `mapstructure:"pagesize"`
	QR        bool `mapstructure:"qr"`
}

type Database struct {
	Type database.Type `mapstructure:"type"`
	URI  string        `mapstructure:"uri"`
}

type Log struct {
	Level string `mapstructure:"level"`
}
