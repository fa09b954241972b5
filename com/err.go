package com

import (
	"errors"

	"github.com/ezrec/comsoc/translate"
)

var f = translate.From

var (
	// Configuration errors
	ErrNoPeripheral = errors.New(f("no SPI peripheral attached"))
)
