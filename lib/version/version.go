// Copyright 2026 The Taskdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version for --version flags and
// the health endpoint.
package version

// Version is the release version. Overridden at build time with
// -ldflags "-X github.com/taskdesk/taskdesk/lib/version.Version=v1.2.3".
var Version = "dev"
