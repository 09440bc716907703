// -*- Mode: Go; indent-tabs-mode: t -*-
//
// Copyright (C) 2019-2023 IOTech Ltd
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/edgexfoundry/device-sdk-go/v4/pkg/startup"

	device_isx3 "github.com/linjuya-lu/device-isx3-go"
	"github.com/linjuya-lu/device-isx3-go/internal/driver"
)

const (
	serviceName string = "device-isx3"
)

func main() {
	d := driver.NewIsx3Driver()
	startup.Bootstrap(serviceName, device_isx3.Version, d)
}
