package models

// All returns every model in dependency order. Migrations own the production schema;
// this list serves AutoMigrate in tests and local tooling.
func All() []any {
	return []any{
		&ActorModel{},
		&SupplierModel{},
		&DocumentSequenceModel{},
		&TireCatalogModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&GoodsReceiptModel{},
		&GoodsReceiptItemModel{},
		&TireModel{},
		&TireMovementModel{},
		&RetreadOrderModel{},
		&RetreadOrderItemModel{},
		&RetreadReceiptModel{},
		&RetreadReceiptItemModel{},
		&AccountingTransactionModel{},
		&JournalEntryModel{},
		&SupplierLedgerEntryModel{},
	}
}
