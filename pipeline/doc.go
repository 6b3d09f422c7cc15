// Copyright 2025 Poiesic Systems
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


// Package pipeline answers questions by sequencing retrieval, prompt
// assembly, generation and scoring.
//
// Each query moves through a fixed series of stages:
//
//	Start -> Retrieve -> Assemble -> Generate -> Score -> Done
//
// with Failed reachable from any stage. Retrieval problems never fail a
// query; they only shrink its context. A generation failure ends the query
// in Failed but still yields a well-formed PipelineOutput with zero
// confidence and no sources. The only error ProcessQuery returns is
// core.ErrEmptyQuery for a blank question.
//
// A Monitor observes every stage, following the same hook pattern used for
// tracing elsewhere in the module.
package pipeline
