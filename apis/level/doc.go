/*
   Copyright 2026 The Fapilog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package level defines the severity scale used across fapilog.
//
// Built-in levels are ordered trace < debug < info < notice < warn <
// error < critical. Their integer priorities are spaced so applications
// can register additional severities (see Register) that sort between
// built-ins; registered names participate in ParseLevel and String like
// built-ins do.
//
// This package does not depend on any logging backend.
package level
