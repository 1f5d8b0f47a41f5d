package config

import "errors"

var errCloudUnavailable = errors.New("config: cloud is not available (CLOUD_ENDPOINT/CLOUD_PUBLIC_KEY not set)")
