package service

import "errors"

var errClientNameRequired = errors.New("client_name is required")
