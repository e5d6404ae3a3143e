/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"time"

	"glitch/src/board"
	"glitch/src/cli"
	"glitch/src/glitch"
	"glitch/src/target"
)

func main() {
	peripherals, err := board.Setup()
	if err != nil {
		panic("board setup failed: " + err.Error())
	}

	hw, err := glitch.NewHardware(peripherals.RefClock)
	if err != nil {
		panic("glitch engine setup failed: " + err.Error())
	}
	ctrl := glitch.NewController(hw)

	targetLink, err := target.Open(peripherals.Target)
	if err != nil {
		fmt.Printf("glitchctl: target capture unavailable: %s\n", err)
	}

	dispatcher := &cli.Dispatcher{
		Ctrl:   ctrl,
		Clock:  hw,
		Target: targetLink,
		Out:    peripherals.Host,
	}

	fmt.Fprintln(peripherals.Host, "OK: glitchctl ready")

	scanner := bufio.NewScanner(peripherals.Host)
	tick := time.NewTicker(time.Millisecond)
	lines := make(chan string, 4)
	go func() {
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case line := <-lines:
			dispatcher.HandleLine(line)
		case <-tick.C:
			ctrl.Tick()
		}
	}
}
