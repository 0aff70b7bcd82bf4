// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor_test contains unit tests for the chain-of-responsibility
// primitives: output piping, error short-circuiting, and temp file
// cleanup.
package cor_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/zeebo/assert"

	"github.com/videopulse/video-insights/internal/core/cor"
)

// appendCommand appends its own name to the string it receives on CtxIn.
type appendCommand struct {
	cor.BaseCommand
	fail bool
}

func (c *appendCommand) IsExecutable(_ cor.Context) bool {
	return true
}

func (c *appendCommand) Execute(context cor.Context) {
	if c.fail {
		context.AddError(c.GetName(), fmt.Errorf("%s failed", c.GetName()))
		return
	}
	in, _ := context.Get(cor.CtxIn).(string)
	context.Add(cor.CtxOut, in+"."+c.GetName())
}

func newAppendCommand(name string, fail bool) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), fail: fail}
}

func newChainContext(input string) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, input)
	return chainCtx
}

// TestChainPipesOutputToInput verifies each command's CtxOut becomes the
// next command's CtxIn.
func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppendCommand("first", false))
	chain.AddCommand(newAppendCommand("second", false))

	chainCtx := newChainContext("start")
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "start.first.second", chainCtx.Get(cor.CtxIn))
}

// TestChainStopsOnFirstError verifies commands after a failure are
// skipped by default.
func TestChainStopsOnFirstError(t *testing.T) {
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppendCommand("first", false))
	chain.AddCommand(newAppendCommand("boom", true))
	last := newAppendCommand("last", false)
	chain.AddCommand(last)

	chainCtx := newChainContext("start")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	_, recorded := chainCtx.GetErrors()["boom"]
	assert.True(t, recorded)
	// The failing command wrote no output, so CtxIn was cleared and the
	// final command never appended.
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}

// TestChainContinueOnFailure verifies the opt-in mode keeps executing
// after an error.
func TestChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("continue").ContinueOnFailure(true)
	chain.AddCommand(newAppendCommand("boom", true))
	chain.AddCommand(newAppendCommand("bang", true))

	chainCtx := newChainContext("start")
	chain.Execute(chainCtx)

	// Both commands ran and both recorded their error. Without the opt-in
	// the second would have been skipped.
	assert.Equal(t, 2, len(chainCtx.GetErrors()))
}

// TestContextCloseRemovesTempFiles verifies Close deletes every tracked
// temp file.
func TestContextCloseRemovesTempFiles(t *testing.T) {
	chainCtx := cor.NewBaseContext()
	f, err := os.CreateTemp("", "cor-close-*")
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	chainCtx.AddTempFile(f.Name())
	chainCtx.Close()

	_, err = os.Stat(f.Name())
	assert.True(t, os.IsNotExist(err))
}
