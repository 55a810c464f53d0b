package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
            usuario_id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            nombre_completo TEXT NOT NULL DEFAULT '',
            rol TEXT NOT NULL CHECK (rol IN ('admin', 'cajero')),
            activo INTEGER NOT NULL DEFAULT 1,
            fecha_creacion TEXT NOT NULL DEFAULT (datetime('now', 'localtime'))
        );`,
	`CREATE TABLE IF NOT EXISTS categorias (
            categoria_id INTEGER PRIMARY KEY AUTOINCREMENT,
            nombre TEXT NOT NULL UNIQUE COLLATE NOCASE,
            descripcion TEXT,
            activo INTEGER NOT NULL DEFAULT 1,
            fecha_creacion TEXT NOT NULL DEFAULT (datetime('now', 'localtime'))
        );`,
	`CREATE TABLE IF NOT EXISTS productos (
            producto_id INTEGER PRIMARY KEY AUTOINCREMENT,
            codigo_barras TEXT UNIQUE,
            sku TEXT UNIQUE,
            nombre TEXT NOT NULL,
            descripcion TEXT,
            marca TEXT,
            categoria_id INTEGER REFERENCES categorias(categoria_id),
            precio_venta REAL NOT NULL CHECK (precio_venta >= 0),
            precio_costo REAL,
            stock_actual INTEGER NOT NULL DEFAULT 0 CHECK (stock_actual >= 0),
            stock_minimo INTEGER NOT NULL DEFAULT 5,
            activo INTEGER NOT NULL DEFAULT 1,
            fecha_creacion TEXT NOT NULL DEFAULT (datetime('now', 'localtime'))
        );`,
	`CREATE TABLE IF NOT EXISTS clientes (
            cliente_id INTEGER PRIMARY KEY AUTOINCREMENT,
            tipo_documento TEXT NOT NULL DEFAULT 'DNI',
            num_documento TEXT,
            nombre_completo TEXT NOT NULL,
            email TEXT,
            telefono TEXT,
            direccion TEXT,
            activo INTEGER NOT NULL DEFAULT 1,
            fecha_registro TEXT NOT NULL DEFAULT (datetime('now', 'localtime'))
        );`,
	`CREATE TABLE IF NOT EXISTS ventas (
            venta_id INTEGER PRIMARY KEY AUTOINCREMENT,
            numero_comprobante TEXT NOT NULL UNIQUE,
            usuario_id INTEGER NOT NULL,
            cliente_id INTEGER NOT NULL DEFAULT 1,
            subtotal REAL NOT NULL,
            igv REAL NOT NULL DEFAULT 0,
            total REAL NOT NULL,
            descuento REAL NOT NULL DEFAULT 0,
            tipo_documento TEXT NOT NULL DEFAULT 'Boleta',
            metodo_pago TEXT NOT NULL CHECK (metodo_pago IN ('Efectivo', 'Tarjeta')),
            monto_recibido REAL NOT NULL DEFAULT 0,
            cambio REAL NOT NULL DEFAULT 0,
            notas TEXT,
            estado TEXT NOT NULL DEFAULT 'Completado',
            fecha_hora TEXT NOT NULL DEFAULT (datetime('now', 'localtime')),
            FOREIGN KEY(usuario_id) REFERENCES usuarios(usuario_id),
            FOREIGN KEY(cliente_id) REFERENCES clientes(cliente_id)
        );`,
	`CREATE TABLE IF NOT EXISTS detalle_venta (
            detalle_id INTEGER PRIMARY KEY AUTOINCREMENT,
            venta_id INTEGER NOT NULL,
            producto_id INTEGER NOT NULL,
            cantidad INTEGER NOT NULL CHECK (cantidad > 0),
            precio_unitario REAL NOT NULL,
            descuento REAL NOT NULL DEFAULT 0,
            subtotal REAL NOT NULL,
            FOREIGN KEY(venta_id) REFERENCES ventas(venta_id),
            FOREIGN KEY(producto_id) REFERENCES productos(producto_id)
        );`,
	`CREATE TABLE IF NOT EXISTS movimientos_stock (
            movimiento_id INTEGER PRIMARY KEY AUTOINCREMENT,
            producto_id INTEGER NOT NULL,
            tipo TEXT NOT NULL CHECK (tipo IN ('venta', 'ajuste', 'importacion')),
            cantidad INTEGER NOT NULL,
            stock_resultante INTEGER NOT NULL,
            referencia_id INTEGER,
            fecha TEXT NOT NULL DEFAULT (datetime('now', 'localtime')),
            FOREIGN KEY(producto_id) REFERENCES productos(producto_id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas(fecha_hora);`,
	`CREATE INDEX IF NOT EXISTS idx_detalle_venta_venta ON detalle_venta(venta_id);`,
	`CREATE INDEX IF NOT EXISTS idx_productos_categoria ON productos(categoria_id);`,
	`CREATE INDEX IF NOT EXISTS idx_movimientos_producto ON movimientos_stock(producto_id);`,
	`INSERT OR IGNORE INTO clientes (cliente_id, tipo_documento, nombre_completo) VALUES (1, 'DNI', 'Público General');`,
}

// Run creates the database schema required for the POS backend.
func Run(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	return nil
}
