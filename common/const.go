package common

var Version = "restable v1.0"
