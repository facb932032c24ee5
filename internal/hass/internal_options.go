// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package hass

import "fmt"

func brokerVador() Option {
	return optionFunc(
		func(p *Publisher) error {
			if p.broker == "" {
				return fmt.Errorf("%w: a broker URL is required", ErrInvalidInput)
			}
			return nil
		})
}

func sourceVador() Option {
	return optionFunc(
		func(p *Publisher) error {
			if p.source == nil {
				return fmt.Errorf("%w: a snapshot source is required", ErrInvalidInput)
			}
			return nil
		})
}

func deviceVador() Option {
	return optionFunc(
		func(p *Publisher) error {
			if p.deviceID == "" || p.deviceName == "" {
				return fmt.Errorf("%w: a device id and name are required", ErrInvalidInput)
			}
			return nil
		})
}
