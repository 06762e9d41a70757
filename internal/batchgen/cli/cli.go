// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli defines the batchgen command tree. One binary carries the
// long-running service and the offline snapshot tools, all speaking the same
// engine and snapshot format.
package cli

// CLI is the root command parsed by kong.
type CLI struct {
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP batch service."`
	Draw     DrawCmd     `cmd:"" help:"Draw one batch from a snapshot file."`
	Inspect  InspectCmd  `cmd:"" help:"Print a snapshot's counts and validation report."`
	Simulate SimulateCmd `cmd:"" help:"Run repeated draws in memory and report exposure balance."`
}
