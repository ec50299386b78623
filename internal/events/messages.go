package events

import (
	"encoding/json"
	"time"
)

type QuoteConvertedMessage struct {
	QuoteID    string    `json:"quoteId"`
	SaleID     string    `json:"saleId"`
	ClientID   string    `json:"clientId"`
	TotalValue string    `json:"totalValue"`
	Timestamp  time.Time `json:"timestamp"`
}

type InstallmentsPaidMessage struct {
	InstallmentIDs []string  `json:"installmentIds"`
	PaidDate       string    `json:"paidDate"`
	Timestamp      time.Time `json:"timestamp"`
}

type ClientDeletedMessage struct {
	ClientID     string    `json:"clientId"`
	Sales        int       `json:"sales"`
	Installments int       `json:"installments"`
	Timestamp    time.Time `json:"timestamp"`
}

func (m QuoteConvertedMessage) body() ([]byte, error)   { return json.Marshal(m) }
func (m InstallmentsPaidMessage) body() ([]byte, error) { return json.Marshal(m) }
func (m ClientDeletedMessage) body() ([]byte, error)    { return json.Marshal(m) }
