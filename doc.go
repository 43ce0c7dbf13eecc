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

// Package fapilog is a structured, asynchronous logging pipeline for
// service applications.
//
// Producers enqueue records through the Logger facade into a bounded
// queue with selectable backpressure (drop_newest, drop_oldest, block,
// sample_on_pressure). Background workers run each record through
// enrichers, redactors, filters and a serializer, batch the results per
// sink, and deliver them to destinations wrapped with retry, circuit
// breakers and optional fallbacks. Log calls never raise into the
// application: the only user-visible failures are at Build and in the
// DrainResult returned by Drain.
//
// # Quick start
//
//	logger, err := fapilog.NewBuilder().FromEnv().Build(ctx)
//	if err != nil {
//		// configuration problems surface here, nowhere else
//	}
//	defer logger.Close()
//
//	logger.Info(ctx, "service started", field.New("port", 8080))
//
// Configuration comes from FAPILOG__* environment variables (see
// runtime/config) or programmatic builder options. Contracts live under
// apis/, implementations under runtime/; the zap bridge under bridge/
// lets existing zapcore users feed the same pipeline.
package fapilog
