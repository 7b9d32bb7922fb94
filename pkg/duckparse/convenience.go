package duckparse

import (
	"context"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/project"
)

// ParseDimension is Parse restricted to a single dimension.
func (p *Parser) ParseDimension(ctx context.Context, d dimension.Dimension, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.Parse(ctx, text, append(opts[:len(opts):len(opts)], WithDimensions(d))...)
}

// ParseTime parses time entries.
func (p *Parser) ParseTime(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Time, text, opts...)
}

// ParseTimezone parses timezone entries.
func (p *Parser) ParseTimezone(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Timezone, text, opts...)
}

// ParseTemperature parses temperature entries.
func (p *Parser) ParseTemperature(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Temperature, text, opts...)
}

// ParseNumber parses number entries.
func (p *Parser) ParseNumber(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Number, text, opts...)
}

// ParseOrdinal parses ordinal entries.
func (p *Parser) ParseOrdinal(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Ordinal, text, opts...)
}

// ParseDistance parses distance entries.
func (p *Parser) ParseDistance(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Distance, text, opts...)
}

// ParseVolume parses volume entries.
func (p *Parser) ParseVolume(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Volume, text, opts...)
}

// ParseMoney parses amount-of-money entries.
func (p *Parser) ParseMoney(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.AmountOfMoney, text, opts...)
}

// ParseDuration parses duration entries.
func (p *Parser) ParseDuration(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Duration, text, opts...)
}

// ParseEmail parses email addresses.
func (p *Parser) ParseEmail(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Email, text, opts...)
}

// ParseURL parses url entries.
func (p *Parser) ParseURL(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.URL, text, opts...)
}

// ParsePhoneNumber parses phone-number entries.
func (p *Parser) ParsePhoneNumber(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.PhoneNumber, text, opts...)
}

// ParseLevenProduct parses leven-product entries.
func (p *Parser) ParseLevenProduct(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.LevenProduct, text, opts...)
}

// ParseLevenUnit parses leven-unit entries.
func (p *Parser) ParseLevenUnit(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.LevenUnit, text, opts...)
}

// ParseQuantity parses quantity entries.
func (p *Parser) ParseQuantity(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Quantity, text, opts...)
}

// ParseCycle parses cycle entries.
func (p *Parser) ParseCycle(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Cycle, text, opts...)
}

// ParseUnit parses unit entries.
func (p *Parser) ParseUnit(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.Unit, text, opts...)
}

// ParseUnitOfDuration parses unit-of-duration entries.
func (p *Parser) ParseUnitOfDuration(ctx context.Context, text string, opts ...CallOption) ([]project.Entry, error) {
	return p.ParseDimension(ctx, dimension.UnitOfDuration, text, opts...)
}
