// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads batch definitions from YAML or HCL files and validates them into a Batch.
//
// HCL files can read the environment through the env object:
//
//	runtime_home = env.SIM_HOME
//
// All validation problems are reported together.
package config
