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

// batchgen is the fair batch service and its offline snapshot tools.
package main

import (
	rootcmd "fairdraw/cmd"
	"fairdraw/internal/batchgen/cli"
)

func main() {
	rootcmd.Run(&cli.CLI{}, "batchgen",
		"Balanced batch selection service: draws bounded batches from an integer range so every element is shown approximately equally often.")
}
