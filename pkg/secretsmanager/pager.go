package secretsmanager

import (
	"context"
	"errors"
	"fmt"
)

// SecretsPager walks ListAllSecrets page by page. It is not safe for
// concurrent use.
type SecretsPager struct {
	svc      *Service
	opts     ListAllSecretsOptions
	pageSize int
	offset   int
	done     bool
}

// NewSecretsPager starts at opts.Offset (or zero) and requests opts.Limit
// items per page, DefaultPageSize when unset.
func NewSecretsPager(svc *Service, opts *ListAllSecretsOptions) (*SecretsPager, error) {
	if svc == nil {
		return nil, errors.New("secretsmanager: pager needs a service")
	}
	p := &SecretsPager{svc: svc, pageSize: DefaultPageSize}
	if opts != nil {
		p.opts = *opts
		if opts.Limit != nil {
			p.pageSize = *opts.Limit
		}
		if opts.Offset != nil {
			p.offset = *opts.Offset
		}
	}
	if p.pageSize < 1 || p.pageSize > MaxPageSize {
		return nil, fmt.Errorf("secretsmanager: page size %d out of range 1..%d", p.pageSize, MaxPageSize)
	}
	if p.offset < 0 {
		return nil, fmt.Errorf("secretsmanager: negative offset %d", p.offset)
	}
	return p, nil
}

// HasNext reports whether another page may exist.
func (p *SecretsPager) HasNext() bool { return !p.done }

// Next fetches the next page. A page shorter than the page size ends the walk.
func (p *SecretsPager) Next(ctx context.Context) ([]SecretMetadata, error) {
	if p.done {
		return nil, nil
	}
	limit, offset := p.pageSize, p.offset
	o := p.opts
	o.Limit = &limit
	o.Offset = &offset

	resp, err := p.svc.ListAllSecrets(ctx, &o)
	if err != nil {
		return nil, err
	}
	page := resp.Result.Resources
	p.offset += len(page)
	if len(page) < p.pageSize {
		p.done = true
	}
	return page, nil
}

// All drains the pager.
func (p *SecretsPager) All(ctx context.Context) ([]SecretMetadata, error) {
	var all []SecretMetadata
	for p.HasNext() {
		page, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}
