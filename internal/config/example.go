// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

// ExampleYAML is a commented batch definition in YAML.
const ExampleYAML = `# simbatch batch definition
name: knee study
executable: AnyBodyCon.exe
timeout: 30m
# 0 uses one worker per CPU
max_concurrency: 4
ignore_errors:
  - "Penetration of surface"
warnings_to_include:
  - "Kinematic tolerance"
keep_logfiles: false
logfile_prefix: knee_
license_retries: 1
license_retry_delay: 10s
search_subdirs: "*.main.any"
env:
  STUDY: knee
exit_codes:
  supervisor_killed: 10
  no_license: -22
folders:
  - path: ./models
    name: models
macros:
  - - load "Knee.main.any"
    - operation Main.Study.InverseDynamics
    - run
  - - load "Knee.main.any" -def N=5
    - operation Main.Study.InverseDynamics
    - run
`

// ExampleHCL is ExampleYAML written in HCL.
const ExampleHCL = `# simbatch batch definition
name       = "knee study"
executable = "AnyBodyCon.exe"
timeout    = "30m"
# 0 uses one worker per CPU
max_concurrency     = 4
ignore_errors       = ["Penetration of surface"]
warnings_to_include = ["Kinematic tolerance"]
keep_logfiles       = false
logfile_prefix      = "knee_"
license_retries     = 1
license_retry_delay = "10s"
search_subdirs      = "*.main.any"

env = {
  STUDY = "knee"
}

exit_codes {
  supervisor_killed = 10
  no_license        = -22
}

folder {
  path = "./models"
  name = "models"
}

macros = [
  [
    "load \"Knee.main.any\"",
    "operation Main.Study.InverseDynamics",
    "run",
  ],
  [
    "load \"Knee.main.any\" -def N=5",
    "operation Main.Study.InverseDynamics",
    "run",
  ],
]
`
