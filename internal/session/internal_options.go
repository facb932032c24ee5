// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package session

import "fmt"

func baseURLVador() Option {
	return optionFunc(
		func(s *Session) error {
			if s.baseURL == "" {
				return fmt.Errorf("%w base URL is missing", ErrInvalidInput)
			}
			return nil
		})
}

func credentialVador() Option {
	return optionFunc(
		func(s *Session) error {
			if s.username == "" {
				return fmt.Errorf("%w username is missing", ErrInvalidInput)
			}
			if s.password == "" {
				return fmt.Errorf("%w password is missing", ErrInvalidInput)
			}
			return nil
		})
}

func marginVador() Option {
	return optionFunc(
		func(s *Session) error {
			if s.expiryMargin >= s.tokenTTL {
				return fmt.Errorf("%w expiry margin must be smaller than the token ttl", ErrInvalidInput)
			}
			return nil
		})
}
