// Copyright 2018 The gVisor Authors.
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

// Package seccomp compiles a syscall-number policy into a kernel-enforced
// seccomp-BPF filter and installs it for the current, single-threaded
// process.
//
// A caller builds a Policy, registers it with a Sandbox, optionally
// checks Supports, and then calls Start. Start is irreversible: once it
// returns successfully the filter is enforced by the kernel for the
// remaining lifetime of the process, and there is no API to relax it.
//
// Currently, only little-endian amd64 Linux is supported; every other
// target compiles against stub implementations that report the sandbox
// as Unsupported.
package seccomp
