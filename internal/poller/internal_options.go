// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package poller

import "fmt"

func sourceVador() Option {
	return optionFunc(
		func(p *Poller) error {
			if p.source == nil {
				return fmt.Errorf("%w: data source is missing", ErrInvalidInput)
			}
			return nil
		})
}

func plantIDVador() Option {
	return optionFunc(
		func(p *Poller) error {
			if p.plantID == "" {
				return fmt.Errorf("%w: plant id is missing", ErrInvalidInput)
			}
			return nil
		})
}
